// Package cli implements attendctl, the operator command line for the
// attendpass credential service.
//
//	attendctl [-a addr] [-timeout d] [-c file] <command> [args]
//
// Commands:
//
//	issue -session S -event E [-hall H] [-name N] [-expiry M]
//	batch [-expiry M] [-sequential] [-export] FILE
//	renew [-expiry M] WIRE
//	validate [WIRE]      reads the code from stdin when WIRE is omitted
//	ping
//	keygen [-bytes N]    prints a random signing secret
//
// validate exits with status 1 when the code is rejected.
package cli
