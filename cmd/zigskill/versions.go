package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the supported Zig versions",
	Long: `List the Zig versions the reference material tracks. With --check the
published release index is fetched from ziglang.org and compared against
the newest supported version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")

		for _, v := range toolchain.SupportedVersions {
			marker := " "
			if v == toolchain.DefaultVersion {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, v)
		}

		if !check {
			return nil
		}

		latest, err := toolchain.NewReleaseClient().LatestStable(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to fetch the release index")
		}

		fmt.Println()
		presenter.Info(fmt.Sprintf("Latest published release: %s", toolchain.FormatRelease(latest)))
		if toolchain.Newer(latest.Version, toolchain.DefaultVersion) {
			presenter.Warning(fmt.Sprintf("Zig %s is newer than the newest supported version %s, the reference material needs an update",
				latest.Version, toolchain.DefaultVersion))
		} else {
			presenter.Success("Reference material covers the latest published release")
		}
		return nil
	},
}

func init() {
	versionsCmd.Flags().Bool("check", false, "Compare against the published release index")
	rootCmd.AddCommand(versionsCmd)
}
