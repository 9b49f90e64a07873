package driven

import "context"

// RecoveryVerifier proves that the final layout survives the loss of any
// single volume. Implementations reassemble the remaining volumes'
// contents and check that full recovery is possible.
type RecoveryVerifier interface {
	// VerifyWithout checks restorability with volumeDirs[missing]
	// absent. workDir is scratch space the verifier may use.
	VerifyWithout(ctx context.Context, workDir string, volumeDirs []string, missing int) error
}
