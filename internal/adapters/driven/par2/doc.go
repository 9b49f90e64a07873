// Package par2 shells out to the par2 command-line tool to generate and
// verify Reed-Solomon recovery files.
//
// The generator runs "par2 create" once per group inside the group's
// staged directory, sizing the recovery block count so that the produced
// recovery data matches the group's byte target. The verifier rebuilds a
// symlink farm from the surviving volumes and runs "par2 verify" against
// each recovery set to prove that losing any single volume is survivable.
//
// Both adapters require the par2 binary on PATH.
package par2
