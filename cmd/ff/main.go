// Command ff is the FFTP client: it connects to a running fftpd over
// UDP and issues List/Download requests on its behalf.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
