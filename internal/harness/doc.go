// Package harness runs one measurement through every loaded filter module.
//
// A Bench owns the modules that loaded successfully, in the order their
// paths were given. Run feeds the same Measurement to each module strictly
// sequentially and collects one Outcome per module: a result quaternion, or
// an absent result with the reason. A module that cannot compute a result
// never aborts the run.
//
// # Bench Profiles
//
// A scenario file fixes what the command line would otherwise supply:
//
//	name: kriswiner-refactors
//	description: compare refactor snapshots
//	files: [./build/refac2.so]
//	dirs: [./build]
//	seed: 42
//	measurement:
//	  acc:  {x: 1, y: 2, z: 3}
//	  gyro: {x: 4, y: 5, z: 6}
//	  mag:  {x: 7, y: 8, z: 9}
//	beta: 0.6
//	deltat: 0.01
//	tolerance: 1e-6
//
// Relative paths resolve against the scenario file's directory. Unknown keys
// are rejected.
//
// # Concurrency
//
// The bench holds a mutex for the whole of Run and Tune, and every module
// serializes its own native calls, so no two goroutines ever execute filter
// code at once. There is no cancellation: a native call that hangs blocks
// the run, and a native fault ends the process.
//
// # Usage
//
//	bench := harness.New(paths, harness.Options{Logger: logger})
//	bench.Tune(harness.Tuning{Beta: &beta})
//	run := bench.Run(measure.NewFresh().Generate())
package harness
