package cli

import (
	"fmt"

	"github.com/moodlog/internal/db"
	"github.com/spf13/cobra"
)

func newInitUserCommand(a *app) *cobra.Command {
	var username, password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "init-user",
		Short: "Create an account if it does not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := a.openDB()
			if err != nil {
				return fmt.Errorf("数据库初始化失败: %w", err)
			}
			defer closeDB(gdb)

			created, err := db.EnsureUser(gdb, username, password, admin)
			if err != nil {
				return fmt.Errorf("创建用户失败: %w", err)
			}
			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "用户 %s 已存在或参数为空，无需初始化\n", username)
				return nil
			}
			fmt.Fprintf(out, "用户 %s 创建成功\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "account name")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&admin, "admin", true, "grant access to the sentiment settings")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
