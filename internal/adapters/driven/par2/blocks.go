package par2

import (
	"math"
	"sort"
)

const (
	// par2 slows down badly past this many blocks; stay well under the
	// format's 32768 ceiling.
	maxTotalBlocks = 20000

	minBlockSize = 4096
)

// SuitableBlockSize picks a par2 block size for the given file sizes.
//
// When at least three quarters of the files share the same size, a block
// size near that common size wastes almost nothing on padding. Otherwise
// a quarter of the 20th-percentile size keeps small files from consuming
// whole blocks. Either way the result is doubled until the total block
// count fits the par2 limit, and rounded up to a multiple of 4.
func SuitableBlockSize(fileSizes []int64) int64 {
	sizes := append([]int64(nil), fileSizes...)
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	var total int64
	for _, s := range sizes {
		total += s
	}
	largest := sizes[len(sizes)-1]

	var blockSize int64
	x := sizes[len(sizes)/4]
	if x == largest && total/x+int64(len(sizes)) < maxTotalBlocks {
		if x > 1<<20 {
			// Aim between 1 and 2 MB without overshooting the
			// common file size.
			mb := x / (1 << 20)
			blockSize = (x + mb - 1) / mb
		} else {
			blockSize = x
		}
	} else {
		blockSize = sizes[len(sizes)/5] / 4
		if blockSize < minBlockSize {
			blockSize = minBlockSize
		}
	}

	// Per-file round-up counts, not the aggregate estimate: the block
	// budget the tool enforces is over actual data blocks.
	for TotalBlocks(sizes, blockSize)+len(sizes) > maxTotalBlocks {
		blockSize *= 2
		if blockSize > largest {
			blockSize = largest
			break
		}
	}

	if blockSize%4 != 0 {
		blockSize += 4 - blockSize%4
	}
	return blockSize
}

// TotalBlocks returns the number of data blocks the files occupy at the
// given block size. Every file's final partial block counts as a whole
// block.
func TotalBlocks(fileSizes []int64, blockSize int64) int {
	var total int64
	for _, s := range fileSizes {
		total += (s + blockSize - 1) / blockSize
	}
	return int(total)
}

// RecoveryBlockCount returns how many recovery blocks make the recovery
// share of all blocks equal fraction. A fraction f over d data blocks
// needs ceil(d*f/(1-f)) recovery blocks.
func RecoveryBlockCount(dataBlocks int, fraction float64) int {
	n := int(math.Ceil(float64(dataBlocks) * fraction / (1 - fraction)))
	if n < 1 {
		n = 1
	}
	return n
}
