package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/crypto/bcrypt"

	"tradejournal/src/database"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

// adminuser manages journal users from the shell. The API has no signup
// endpoint; accounts are provisioned here.
func main() {
	app := cli.NewApp()
	app.Name = "adminuser"
	app.Usage = "manage trade journal users"

	app.Before = func(c *cli.Context) error {
		return database.InitMainDB()
	}

	app.Commands = []cli.Command{
		{
			Name:  "create",
			Usage: "create a new user",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "username", Required: true},
				cli.StringFlag{Name: "password", Required: true},
				cli.StringFlag{Name: "email"},
				cli.StringFlag{Name: "first-name"},
				cli.StringFlag{Name: "last-name"},
			},
			Action: createUser,
		},
		{
			Name:  "reset-password",
			Usage: "set a new password for an existing user",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "username", Required: true},
				cli.StringFlag{Name: "password", Required: true},
			},
			Action: resetPassword,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("adminuser failed")
	}
}

func createUser(c *cli.Context) error {
	ctx := context.Background()
	users := repository.NewUserRepository()

	username := c.String("username")

	existing, err := users.FindByUserName(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user %q already exists", username)
	}

	hash, err := hashPassword(c.String("password"))
	if err != nil {
		return err
	}

	user := &model.User{
		UserName:  username,
		Email:     c.String("email"),
		Password:  hash,
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
	}

	if err := users.Create(ctx, user); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"user_id":   user.ID,
		"user_name": user.UserName,
	}).Info("User created")

	return nil
}

func resetPassword(c *cli.Context) error {
	ctx := context.Background()
	users := repository.NewUserRepository()

	user, err := users.FindByUserName(ctx, c.String("username"))
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q not found", c.String("username"))
	}

	hash, err := hashPassword(c.String("password"))
	if err != nil {
		return err
	}

	user.Password = hash
	if err := users.Update(ctx, user); err != nil {
		return err
	}

	// Sessions stay valid until expiry; revoke them so the old credential
	// cannot keep an open door.
	sessions := repository.NewSessionRepository()
	if _, err := sessions.DeleteAllByUser(ctx, user.ID); err != nil {
		logger.WithError(err).Warn("Failed to revoke user sessions")
	}

	logger.WithField("user_name", user.UserName).Info("Password reset")

	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
