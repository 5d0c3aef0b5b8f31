package cmd

import (
	"context"
	"fmt"
	"sort"

	"Playshare/db"
	"Playshare/job"
	"Playshare/repository"
	"Playshare/storage"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
	minioPrune  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `列出上传的封面和音频文件，查看统计信息，或立即清理不再被引用的文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		ctx := context.Background()
		blobs, err := storage.New(ctx, cfg)
		if err != nil {
			return errors.Wrap(err, "无法连接到MinIO")
		}

		if minioPrune {
			gdb, err := db.ConnectGormDB(cfg)
			if err != nil {
				return err
			}
			defer db.CloseGormDB(gdb)

			report, err := job.NewOrphanCleanupJob(repository.NewRepositories(gdb), blobs, cfg.CleanupGrace).Prune(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("扫描 %d, 删除 %d, 未过宽限期 %d, 失败 %d\n",
				report.Scanned, report.Deleted, report.Young, report.Failed)
			return nil
		}

		objects, stats, err := storage.Stats(ctx, blobs, minioPrefix)
		if err != nil {
			return err
		}

		if !minioStats {
			for _, obj := range objects {
				fmt.Printf("%-60s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
			}
			fmt.Println()
		}

		fmt.Printf("文件总数: %d\n", stats.TotalObjects)
		fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("最后修改: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		kinds := make([]string, 0, len(stats.SizeByKind))
		for kind := range stats.SizeByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Printf("  %-10s %s\n", kind, storage.FormatSize(stats.SizeByKind[kind]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示统计信息")
	minioCmd.Flags().BoolVar(&minioPrune, "prune", false, "删除超过宽限期且未被引用的文件")

	minioCmd.Example = `  # 列出所有文件
  playshare minio

  # 只看封面
  playshare minio -p "playlist_covers/"

  # 统计信息
  playshare minio -s

  # 立即清理孤立文件
  playshare minio --prune`
}
