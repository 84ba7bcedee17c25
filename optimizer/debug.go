//go:build arbordebug

package optimizer

// debug enables the convergence assertion at the end of Optimize.
const debug = true
