package cmd

import (
	"Playshare/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Playshare服务器",
	Long:  `启动HTTP服务器，并按CLEANUP_SCHEDULE运行孤立文件清理任务`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(loadConfig())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
