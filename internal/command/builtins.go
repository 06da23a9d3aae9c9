package command

// builtins returns the full built-in command set described in spec §4.4.
func builtins() []Command {
	return []Command{
		New("exec", "<program> [args...] [&]", cmdExec),
		New("wait", "", cmdWait),
		New("sleep", "<duration>", cmdSleep),

		New("stdout", "<pattern>", cmdStdout),
		New("stderr", "<pattern>", cmdStderr),
		New("grep", "<pattern> <file>", cmdGrep),
		New("cmp", "<a> <b>", cmdCmp),
		New("cmpenv", "<a> <b>", cmdCmpenv),

		New("cat", "<file>...", cmdCat),
		New("cp", "<src> <dst>", cmdCp),
		New("mv", "<src> <dst>", cmdMv),
		New("rm", "<path>...", cmdRm),
		New("mkdir", "<dir>...", cmdMkdir),
		New("exists", "<path>...", cmdExists),

		New("cd", "<dir>", cmdCD),
		New("env", "[KEY=value | KEY]...", cmdEnv),
		New("echo", "<args>...", cmdEcho),
		New("stop", "[reason]", cmdStop),
		New("skip", "[reason]", cmdSkip),
		New("help", "", cmdHelp),
	}
}
