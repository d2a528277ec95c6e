package output

// TxErrorInfo describes an extrinsic the runtime rejected.
type TxErrorInfo struct {
	Call     string // pallet.method that was submitted
	Signer   string // Name or address of the signing user
	Expected string // Event the caller waited for
	Reason   string // Dispatch error name, if any
	TxHash   string
	Tree     string // Rendered call tree, shown in verbose mode
}
