// Package driversim is an in-process stand-in for the tablet driver. It
// accepts request frames on a stream listener, resolves each object
// specifier against an in-memory model of tablets, transducers and contexts,
// and answers with a result or an 'errn' reply.
//
// The model:
//
//	capp
//	├── Wtab[i]             pnam Wmdl (read-only)
//	│   └── Wtrn[j]         pnam (read-only) Wprs
//	└── Wctx(handle)        pnam
//	    └── Wbtn|Wwhl|Wsld|Wmod[k]   pnam
//	        └── Wfnc[f]     pnam Wprx
//
// An admin HTTP router exposes /health, /metrics and /state.
package driversim
