package entities

// Book is a catalog entry. Column names follow the original bookshelf schema
// so an existing database can be served without a migration.
type Book struct {
	ID            uint   `gorm:"primaryKey;column:id" json:"id"`
	Title         string `gorm:"size:255;column:title;index" json:"title"`
	Author        string `gorm:"size:255;column:author" json:"author"`
	PublishedDate string `gorm:"size:255;column:publishedDate" json:"publishedDate"` // YYYY.MM.DD by convention
	ImageURL      string `gorm:"size:255;column:imageUrl" json:"imageUrl"`
	Description   string `gorm:"size:4096;column:description" json:"description"`
	CreatedBy     string `gorm:"size:255;column:createdBy" json:"createdBy"`
	CreatedByID   string `gorm:"size:255;column:createdById;index" json:"createdById"` // unchecked reference to User.ID
	Rating        int    `gorm:"column:rating" json:"rating"`
}

func (Book) TableName() string {
	return "books"
}
