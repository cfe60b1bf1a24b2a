package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilisub/bilibili"
	"bilisub/config"
)

var subtitleCookie string

var subtitleCmd = &cobra.Command{
	Use:   "subtitle <bvid>",
	Short: "输出视频字幕全文",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configPath, envPath); err != nil {
			return err
		}
		cfg := config.Get()
		cl, err := newClients(cfg)
		if err != nil {
			return err
		}
		defer cl.close()

		detail, err := bilibili.FetchVideo(cmd.Context(), cl.bili, args[0], subtitleCookie, cfg.Credential)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s - %s\n", detail.Info.Title, detail.Info.Owner.Name)
		if len(detail.Subtitle) == 0 {
			fmt.Fprintln(out, "视频无字幕")
			return nil
		}
		fmt.Fprintln(out, bilibili.JoinSubtitle(detail.Subtitle))
		return nil
	},
}

func init() {
	subtitleCmd.Flags().StringVar(&subtitleCookie, "cookie", "", "浏览器 Cookie 头，缺省使用配置中的凭据")
}
