package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bilisub/bcut"
	"bilisub/bilibili"
	"bilisub/config"
)

var transcribeBvid string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio_file]",
	Short: "使用必剪转写音频文件或视频音轨",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (transcribeBvid == "") {
			return errors.New("需要指定音频文件或 --bvid 其中之一")
		}
		if err := config.Load(configPath, envPath); err != nil {
			return err
		}
		cfg := config.Get()
		cl, err := newClients(cfg)
		if err != nil {
			return err
		}
		defer cl.close()

		ctx := cmd.Context()
		opts := bcut.TranscribeOptions{}
		var data []byte
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("读取音频失败: %w", err)
			}
			opts.Name = filepath.Base(args[0])
			opts.FileType = strings.TrimPrefix(filepath.Ext(args[0]), ".")
		} else {
			detail, err := bilibili.FetchVideo(ctx, cl.bili, transcribeBvid, "", cfg.Credential)
			if err != nil {
				return err
			}
			if detail.AudioURL == "" {
				return errors.New("未获取到音频地址")
			}
			if data, err = cl.bili.DownloadAudio(ctx, detail.AudioURL); err != nil {
				return err
			}
			opts.Name = transcribeBvid + ".m4a"
			opts.FileType = "m4a"
		}

		tr, err := cl.bcut.Transcribe(ctx, data, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), bcut.Flatten(tr))
		return nil
	},
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribeBvid, "bvid", "", "转写指定视频的音轨")
}
