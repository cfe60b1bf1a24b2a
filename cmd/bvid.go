package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bilisub/bilibili"
)

var bvidCmd = &cobra.Command{
	Use:   "bvid <bvid|aid> [...]",
	Short: "bvid 与 aid 互转",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, arg := range args {
			res, err := convertID(arg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\n", arg, res)
		}
		return nil
	},
}

// convertID 接受 BV 号、纯数字或 av 前缀的 aid
func convertID(arg string) (string, error) {
	if bilibili.IsBvid(arg) {
		return "av" + strconv.FormatUint(bilibili.BvidToAid(arg), 10), nil
	}
	num := strings.TrimPrefix(strings.ToLower(arg), "av")
	aid, err := strconv.ParseUint(num, 10, 64)
	if err != nil || aid == 0 {
		return "", fmt.Errorf("无法识别的编号: %s", arg)
	}
	return bilibili.AidToBvid(aid), nil
}
