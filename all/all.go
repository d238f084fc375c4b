// Package all registers every built-in backend. Import it for its side
// effects when the set of schemes a program will see is not known up front:
//
//	import _ "github.com/hupe1980/omnifs/all"
//
// Programs that only ever touch one backend should import that backend's
// package directly instead and keep the unused drivers out of the binary.
package all

import (
	_ "github.com/hupe1980/omnifs/hdfs"
	_ "github.com/hupe1980/omnifs/local"
	_ "github.com/hupe1980/omnifs/s3"
	_ "github.com/hupe1980/omnifs/ziparc"
)
