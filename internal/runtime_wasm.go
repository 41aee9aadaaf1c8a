//go:build wasm

package internal

// wasm runs every goroutine on the single JS thread, so they all count as main.
const wasmGID = 1

func getGID() int64 {
	return wasmGID
}
