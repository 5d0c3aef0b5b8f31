package cmd

import (
	"context"
	"fmt"

	"Playshare/config"
	"Playshare/core/catalog"
	"Playshare/db"
	"Playshare/repository"
	"Playshare/storage"

	"github.com/spf13/cobra"
)

var (
	userSuperuser bool
	userPassword  string
	userDemote    bool
)

// withService opens the database and blob store for a one-off command.
// The tag cache is not used outside the server.
func withService(cfg *config.Config, fn func(ctx context.Context, svc *catalog.Service) error) error {
	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB(gdb)

	ctx := context.Background()
	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	return fn(ctx, catalog.NewService(repository.NewRepositories(gdb), blobs, nil))
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "创建用户",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(loadConfig(), func(ctx context.Context, svc *catalog.Service) error {
			user, err := svc.Signup(ctx, catalog.SignupInput{
				Username:  args[0],
				Password1: userPassword,
				Password2: userPassword,
			})
			if err != nil {
				return err
			}
			if userSuperuser {
				if user, err = svc.SetSuperuser(ctx, user.Username, true); err != nil {
					return err
				}
			}
			fmt.Printf("已创建用户 %s (id=%d, superuser=%t)\n", user.Username, user.ID, user.IsSuperuser)
			return nil
		})
	},
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "授予或撤销超级用户权限",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(loadConfig(), func(ctx context.Context, svc *catalog.Service) error {
			user, err := svc.SetSuperuser(ctx, args[0], !userDemote)
			if err != nil {
				return err
			}
			fmt.Printf("%s superuser=%t\n", user.Username, user.IsSuperuser)
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "删除用户，其播放列表保留但不再有创建者",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(loadConfig(), func(ctx context.Context, svc *catalog.Service) error {
			if err := svc.DeleteUser(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("已删除用户 %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userPromoteCmd, userDeleteCmd)

	userCreateCmd.Flags().StringVarP(&userPassword, "password", "p", "", "登录密码")
	userCreateCmd.Flags().BoolVar(&userSuperuser, "superuser", false, "创建超级用户")
	_ = userCreateCmd.MarkFlagRequired("password")

	userPromoteCmd.Flags().BoolVar(&userDemote, "revoke", false, "撤销超级用户权限")
}
