package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driving"
)

var (
	createInDir      string
	createOutDir     string
	createTmpDir     string
	createPrefix     string
	createCompress   bool
	createEncrypt    bool
	createRedundancy string
	createCapacity   int64
	createForce      bool
	createRecursive  bool
	createBlockSize  int64
	createNumBlocks  int
	createMemory     int
	createNoVerify   bool
	createGenerator  string
)

var createCmd = &cobra.Command{
	Use:   "create NUM_VOLUMES",
	Short: "Partition files into volumes and generate recovery data",
	Long: `Partitions the input files into NUM_VOLUMES directories of roughly
equal size, generates recovery data worth the requested number of
volumes, and spreads each volume's recovery data across the other
volumes so no volume depends on itself for recovery.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createInDir, "indir", "i", "", "Process the files in this directory (default: current directory)")
	createCmd.Flags().StringVarP(&createOutDir, "outdir", "o", "", "Create the volume directories here (default: current directory)")
	createCmd.Flags().StringVarP(&createTmpDir, "tmpdir", "t", "", "Temporary directory to use (default: output directory)")
	createCmd.Flags().StringVarP(&createPrefix, "prefix", "p", "", "Volume directory name prefix (default: current directory name)")
	createCmd.Flags().BoolVarP(&createCompress, "compress", "c", false, "Compress each file with 7-Zip")
	createCmd.Flags().BoolVarP(&createEncrypt, "encrypt", "e", false, "Encrypt each file (implies compression); prompts for a passphrase")
	createCmd.Flags().StringVarP(&createRedundancy, "redundancy", "r", "", fmt.Sprintf("Number of volumes worth of recovery data (default %g)", domain.DefaultRedundancy))
	createCmd.Flags().Int64Var(&createCapacity, "capacity-bytes", 0, "Capacity of one medium in bytes (0 disables the capacity check)")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "Continue even when the input is unsuitable for the requested volumes")
	createCmd.Flags().BoolVar(&createRecursive, "recursive", false, "Include files in subdirectories")
	createCmd.Flags().Int64Var(&createBlockSize, "block-size", 0, "Block size to pass to the generator (default: heuristic)")
	createCmd.Flags().IntVar(&createNumBlocks, "num-blocks", 0, "Number of blocks for the generator (default: heuristic)")
	createCmd.Flags().IntVar(&createMemory, "memory", 0, "Megabytes of memory the generator may use")
	createCmd.Flags().BoolVar(&createNoVerify, "no-verify", false, "Skip the single-volume-loss restorability check")
	createCmd.Flags().StringVar(&createGenerator, "generator", "", "Recovery data generator: par2, reedsolomon or static")

	rootCmd.AddCommand(createCmd)
}

// passphraseReader prompts for a passphrase without echo. Swapped out
// in tests.
var passphraseReader = func(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Printf("%s: ", prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(secret), nil
}

// validPassphrase limits passphrases to characters that survive being
// passed on a subprocess command line unmangled.
var validPassphrase = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*+=,.\-_\\/()|;: ~<>?"'{}[\]]+$`)

func runCreate(cmd *cobra.Command, args []string) error {
	if build == nil {
		return errors.New("services not configured")
	}

	volumes, err := strconv.Atoi(args[0])
	if err != nil || volumes < 3 {
		return fmt.Errorf("NUM_VOLUMES must be an integer greater than or equal to 3, got %q", args[0])
	}

	redundancy, err := resolveRedundancy(cmd)
	if err != nil {
		return err
	}

	if createBlockSize > 0 && createNumBlocks > 0 {
		return errors.New("cannot set both --block-size and --num-blocks")
	}

	req, cfg, err := buildRequest(volumes, redundancy)
	if err != nil {
		return err
	}

	if createEncrypt {
		passphrase, err := promptPassphrase(cmd)
		if err != nil {
			return err
		}
		req.Passphrase = passphrase
	}

	services, err := build(cfg, generatorName())
	if err != nil {
		return err
	}

	result, err := services.Pipeline.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	printRunReport(cmd, result, redundancy, volumes)
	return nil
}

// resolveRedundancy picks the budget from the flag, the config file, or
// the built-in default, in that order.
func resolveRedundancy(cmd *cobra.Command) (float64, error) {
	if cmd.Flags().Changed("redundancy") {
		r, err := strconv.ParseFloat(createRedundancy, 64)
		if err != nil || r < 0 {
			return 0, fmt.Errorf("--redundancy must be a non-negative number, got %q", createRedundancy)
		}
		return r, nil
	}
	if defaults.Redundancy > 0 {
		return defaults.Redundancy, nil
	}
	return domain.DefaultRedundancy, nil
}

// buildRequest resolves directories and assembles the run request and
// the per-invocation configuration.
func buildRequest(volumes int, redundancy float64) (driving.RunRequest, domain.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return driving.RunRequest{}, domain.Config{}, err
	}

	inDir := createInDir
	if inDir == "" {
		inDir = cwd
	}
	outDir := createOutDir
	if outDir == "" {
		outDir = cwd
	}
	prefix := createPrefix
	if prefix == "" {
		prefix = defaults.Prefix
	}
	if prefix == "" {
		prefix = filepath.Base(cwd) + " "
	}

	cfg := domain.DefaultConfig()
	cfg.Force = createForce
	cfg.Recursive = createRecursive
	cfg.CapacityBytes = createCapacity
	if cfg.CapacityBytes == 0 {
		cfg.CapacityBytes = defaults.CapacityBytes
	}
	if defaults.OversizeThreshold > 0 {
		cfg.OversizeThreshold = defaults.OversizeThreshold
	}

	req := driving.RunRequest{
		InDir:      inDir,
		OutDir:     outDir,
		TmpDir:     createTmpDir,
		Prefix:     prefix,
		Volumes:    volumes,
		Redundancy: redundancy,
		Compress:   createCompress || createEncrypt,
		BlockSize:  createBlockSize,
		BlockCount: createNumBlocks,
		MemoryMB:   createMemory,
		Verify:     !createNoVerify,
	}
	return req, cfg, nil
}

// generatorName picks the generator from the flag or the config file.
func generatorName() string {
	if createGenerator != "" {
		return createGenerator
	}
	if defaults.Generator != "" {
		return defaults.Generator
	}
	return "par2"
}

// promptPassphrase asks for the passphrase twice and validates it.
func promptPassphrase(cmd *cobra.Command) (string, error) {
	passphrase, err := passphraseReader(cmd, "Choose passphrase")
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", errors.New("passphrase cannot be empty; run without --encrypt for an unencrypted backup")
	}
	if !validPassphrase.MatchString(passphrase) {
		return "", fmt.Errorf("passphrase contains characters that do not survive command lines; allowed: %s", validPassphrase.String())
	}

	confirm, err := passphraseReader(cmd, "Verify passphrase")
	if err != nil {
		return "", err
	}
	if passphrase != confirm {
		return "", errors.New("passphrases don't match")
	}
	return passphrase, nil
}
