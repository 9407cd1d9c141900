//go:build panicctx_debug

package panicctx

const debugEnabled = true
