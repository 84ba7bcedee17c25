//go:build !arbordebug

package optimizer

const debug = false
