package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hivecraft/portal/auth"
	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/persistence"
	"github.com/hivecraft/portal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// A very simple CLI tool for the administration of portal members and
// projects.

var configPath = pflag.StringP("config", "c", "", "path to config file or directory")

func main() {
	log.SetFlags(0)

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()

	cfg, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}
	if cfg.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}

	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		panic(err)
	}
	if persister == nil {
		panic("no persistence configured")
	}
	defer persister.Close()

	var cmdShow = &cobra.Command{
		Use:   "show",
		Short: "Show users or projects",
		Long:  `show prints user or project information.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Show: " + strings.Join(args, " "))
		},
	}
	var cmdShowUsers = &cobra.Command{
		Use:   "users",
		Short: "Show users",
		Long:  `shows a listing of all members.`,
		Run: func(cmd *cobra.Command, args []string) {
			users, err := persister.GetUsers()
			if err != nil {
				globals.AppLogger.Error("could not get users", "error", err)
				return
			}
			printJSON(users)
		},
	}
	var cmdShowUser = &cobra.Command{
		Use:   "user [user id]",
		Short: "Show user",
		Long:  `show user prints detail information about the member with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			user := types.User{Id: args[0]}
			err := persister.GetUser(&user)
			if err != nil {
				globals.AppLogger.Error("could not get user", "error", err)
				return
			}
			printJSON(user)
		},
	}
	var cmdShowProjects = &cobra.Command{
		Use:   "projects",
		Short: "Show projects",
		Long:  `shows a listing of all projects.`,
		Run: func(cmd *cobra.Command, args []string) {
			projects, err := persister.GetAllProjects()
			if err != nil {
				globals.AppLogger.Error("could not get projects", "error", err)
				return
			}
			printJSON(projects)
		},
	}
	var cmdShowProject = &cobra.Command{
		Use:   "project [project id]",
		Short: "Show project",
		Long:  `show project prints detail information about the project with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			project := types.Project{Id: args[0]}
			err := persister.GetProject(&project)
			if err != nil {
				globals.AppLogger.Error("could not get project", "error", err)
				return
			}
			printJSON(project)
		},
	}
	var cmdCreateUser = &cobra.Command{
		Use:   "create-user [email] [name] [password]",
		Short: "Create a member",
		Long:  `create-user creates a member account with the client role.`,
		Args:  cobra.MinimumNArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			hash, err := auth.HashPassword(args[2])
			if err != nil {
				globals.AppLogger.Error("could not hash password", "error", err)
				return
			}
			user := types.User{
				Id:           uuid.NewString(),
				Email:        strings.ToLower(args[0]),
				Name:         args[1],
				Role:         types.RoleClient,
				PasswordHash: hash,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			if err := persister.StoreUser(user); err != nil {
				globals.AppLogger.Error("could not store user", "error", err)
				return
			}
			printJSON(user)
		},
	}
	var cmdSetRole = &cobra.Command{
		Use:   "set-role [user id] [role]",
		Short: "Set a member role",
		Long:  `set-role changes the role of the member with the given id.`,
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if !types.ValidRole(args[1]) {
				globals.AppLogger.Error("unknown role", "role", args[1])
				return
			}
			user := types.User{Id: args[0]}
			if err := persister.GetUser(&user); err != nil {
				globals.AppLogger.Error("could not get user", "error", err)
				return
			}
			user.Role = args[1]
			user.UpdatedAt = time.Now()
			if err := persister.StoreUser(user); err != nil {
				globals.AppLogger.Error("could not store user", "error", err)
				return
			}
			printJSON(user)
		},
	}
	var cmdDelete = &cobra.Command{
		Use:   "delete",
		Short: "Delete user or project",
		Long:  `delete removes the user or project with a given id.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Delete: " + strings.Join(args, " "))
		},
	}
	var cmdDeleteUser = &cobra.Command{
		Use:   "user [user id]",
		Short: "Delete user",
		Long:  `delete user removes the member with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			user := types.User{Id: args[0]}
			if err := persister.DeleteUser(&user); err != nil {
				globals.AppLogger.Error("could not delete user", "error", err)
			}
		},
	}
	var cmdDeleteProject = &cobra.Command{
		Use:   "project [project id]",
		Short: "Delete project",
		Long:  `delete project removes the project with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			project := types.Project{Id: args[0]}
			if err := persister.DeleteProject(&project); err != nil {
				globals.AppLogger.Error("could not delete project", "error", err)
			}
		},
	}

	rootCmd := &cobra.Command{Use: "portal-admin"}
	rootCmd.AddCommand(cmdShow, cmdCreateUser, cmdSetRole, cmdDelete)
	cmdShow.AddCommand(cmdShowUsers, cmdShowUser, cmdShowProjects, cmdShowProject)
	cmdDelete.AddCommand(cmdDeleteUser, cmdDeleteProject)
	if err := rootCmd.Execute(); err != nil {
		globals.AppLogger.Error("command failed", "error", err)
	}
}

func printJSON(v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		globals.AppLogger.Error("could not marshal", "error", err)
		return
	}
	fmt.Println(string(out))
}
