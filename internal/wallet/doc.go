// Package wallet is the boundary to an external wallet provider.
//
// Nothing here holds keys or signs locally. Provider is implemented by
// adapters that forward to a real wallet; RPCProvider speaks the
// EIP-1193 method set over JSON-RPC.
package wallet
