package shell

import "errors"

// errQuit is returned by Eval when the quit built-in is run.
var errQuit = errors.New("quit")
