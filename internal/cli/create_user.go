package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/users"
)

// CreateUserCommand registers a user from the terminal.
type CreateUserCommand struct {
	Name     string
	Password string
	Database config.Database
	Auth     config.Auth

	In  io.Reader
	Out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{
		Auth: config.NewConfig().Auth,
		In:   os.Stdin,
		Out:  os.Stdout,
	}
}

func (cmd *CreateUserCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account in the configured database.
The password is prompted for when --password is not given.`,
		Example: "  bookshelf create-user --name alice",
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	databaseFlags(c, &cmd.Database)
	c.Flags().StringVar(&cmd.Name, "name", "", "login name (required)")
	c.Flags().StringVar(&cmd.Password, "password", "", "password; prompted for when empty")
	c.Flags().StringVar((*string)(&cmd.Auth.PasswordScheme), "password-scheme", string(cmd.Auth.PasswordScheme), "plaintext or bcrypt")
	_ = c.MarkFlagRequired("name")
	return c
}

func (cmd *CreateUserCommand) Run() error {
	if cmd.Password == "" {
		password, err := cmd.readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		cmd.Password = password
	}

	db, err := database.NewDatabase(cmd.Database, database.Options{LogLevel: logger.Silent})
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), auth.NewPasswordHasher(cmd.Auth))
	user, err := service.Register(cmd.Name, cmd.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return fmt.Errorf("user %q already exists", cmd.Name)
		}
		return err
	}

	fmt.Fprintf(cmd.Out, "Created user %q with id %d\n", user.Name, user.ID)
	return nil
}

// readPassword reads without echo from a terminal, or one line otherwise.
func (cmd *CreateUserCommand) readPassword(prompt string) (string, error) {
	if f, ok := cmd.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.Out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.Out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
