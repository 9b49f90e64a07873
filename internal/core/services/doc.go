// Package services implements the driving port interfaces.
// Services contain the core algorithms (partitioning, redundancy
// allocation, distribution) and orchestrate calls to driven ports.
//
// Services are pure Go; everything slow or external sits behind a
// driven port.
package services
