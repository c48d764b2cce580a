//go:build numbankdebug

package numbank

const debugChecks = true
