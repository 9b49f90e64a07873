package cli

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maglar0/create-par2/internal/core/domain"
)

var verifyPrefix string

var verifyCmd = &cobra.Command{
	Use:   "verify DIR",
	Short: "Verify an existing volume layout",
	Long: `Checks every volume directory's checksum file and proves that each
volume can be lost without losing data, one volume at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyPrefix, "prefix", "p", "", "Volume directory name prefix (default: DIR's base name)")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if build == nil {
		return errors.New("services not configured")
	}

	dir := args[0]
	prefix := verifyPrefix
	if prefix == "" {
		prefix = filepath.Base(dir) + " "
	}

	services, err := build(domain.DefaultConfig(), generatorName())
	if err != nil {
		return err
	}
	if services.Verifier == nil {
		return errors.New("verification not available with the selected generator")
	}

	if err := services.Verifier.VerifyLayout(cmd.Context(), dir, prefix); err != nil {
		return err
	}

	cmd.Println(successStyle.Render("All volumes verified: any single volume can be lost safely."))
	return nil
}
