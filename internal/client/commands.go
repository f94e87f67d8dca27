package client

import (
	"fmt"
	"io"
	"strings"
)

// Command is one parsed operator input line, ready to dispatch against a
// Session. Exactly one of its Send* invariants applies depending on Kind.
type Command struct {
	Kind      CommandKind
	Name      string
	Password  string
	Message   string
	Anonymous bool
}

// CommandKind enumerates the REPL verbs this client understands.
type CommandKind int

const (
	CmdList CommandKind = iota
	CmdLogin
	CmdLogout
	CmdRegister
	CmdSend
	CmdSendAnonymous
	CmdSendPrivate
	CmdSendPrivateAnonymous
	CmdQuit
)

// ParseCommand tokenizes one line of operator input the way the
// reference client's ui_handler does: the verb is everything before the
// first space, lowercased; each verb then has its own usage rule for
// what follows. errOut receives the usage/unknown-command diagnostics
// the reference client writes to stderr; a nil Command with a nil error
// means the line produced only a diagnostic and nothing to send.
func ParseCommand(line string, errOut io.Writer) (*Command, error) {
	commandEnd := strings.IndexByte(line, ' ')
	var verb string
	if commandEnd == -1 {
		verb = line
	} else {
		verb = line[:commandEnd]
	}
	verb = strings.ToLower(verb)

	switch verb {
	case "list":
		if len(line) != len(verb) {
			fmt.Fprintln(errOut, `<*CLIENT*>: Invalid use of "list" command - Usage: list`)
			return nil, nil
		}
		return &Command{Kind: CmdList}, nil

	case "login":
		name, password, ok := parseTwoArgs(verb, line, "login", errOut, "login name password")
		if !ok {
			return nil, nil
		}
		return &Command{Kind: CmdLogin, Name: name, Password: password}, nil

	case "logout":
		if len(line) != len(verb) {
			fmt.Fprintln(errOut, `<*CLIENT*>: Invalid use of "logout" command - Usage: logout`)
			return nil, nil
		}
		return &Command{Kind: CmdLogout}, nil

	case "register":
		name, password, ok := parseTwoArgs(verb, line, "register", errOut, "register name password")
		if !ok {
			return nil, nil
		}
		return &Command{Kind: CmdRegister, Name: name, Password: password}, nil

	case "send", "senda":
		kind := CmdSend
		label := "send"
		if verb == "senda" {
			kind = CmdSendAnonymous
			label = "senda"
		}
		if len(line) <= len(verb)+1 {
			fmt.Fprintf(errOut, "<*CLIENT*>: Invalid use of %q command - Usage: %s message\n", label, label)
			return nil, nil
		}
		message := line[len(verb)+1:]
		if len(message) > 4096 {
			what := "Send message error"
			if kind == CmdSendAnonymous {
				what = "Send anonymous message error"
			}
			fmt.Fprintf(errOut, "<*CLIENT*>: %s - Invalid message length (message must be between 1 and 4096 characters)\n", what)
			return nil, nil
		}
		return &Command{Kind: kind, Message: message, Anonymous: kind == CmdSendAnonymous}, nil

	case "sendpriv", "sendpriva":
		kind := CmdSendPrivate
		label := "sendpriv"
		if verb == "sendpriva" {
			kind = CmdSendPrivateAnonymous
			label = "sendpriva"
		}
		name, message, ok := parseSendPriv(verb, line, label, errOut)
		if !ok {
			return nil, nil
		}
		return &Command{Kind: kind, Name: name, Message: message, Anonymous: kind == CmdSendPrivateAnonymous}, nil

	case "quit":
		if len(line) > len(verb) {
			fmt.Fprintln(errOut, `<*CLIENT*>: Invalid use of "quit" command - Usage: quit`)
			return nil, nil
		}
		return &Command{Kind: CmdQuit}, nil

	default:
		fmt.Fprintf(errOut, "<*CLIENT*>: Unknown command %q\n", verb)
		return nil, nil
	}
}

func parseTwoArgs(verb, line, label string, errOut io.Writer, usage string) (string, string, bool) {
	printUsage := func() {
		fmt.Fprintf(errOut, "<*CLIENT*>: Invalid use of %q command - Usage: %s\n", label, usage)
	}

	if len(line) == len(verb) {
		printUsage()
		return "", "", false
	}
	parts := strings.Split(line[len(verb)+1:], " ")
	if len(parts) != 2 {
		printUsage()
		return "", "", false
	}
	return parts[0], parts[1], true
}

// parseSendPriv implements sendpriv/sendpriva's two-part rest: the first
// token is the recipient name, and everything after the single space
// that follows it is the message verbatim (so the message itself may
// contain spaces, unlike name/password fields).
func parseSendPriv(verb, line, label string, errOut io.Writer) (string, string, bool) {
	printUsage := func() {
		fmt.Fprintf(errOut, "<*CLIENT*>: Invalid use of %q command - Usage: %s name message\n", label, label)
	}

	if len(line) == len(verb) {
		printUsage()
		return "", "", false
	}
	rest := line[len(verb)+1:]
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) < 2 || parts[1] == "" {
		printUsage()
		return "", "", false
	}

	name := parts[0]
	message := line[len(verb)+1+len(name)+1:]
	if len(message) > 4096 {
		fmt.Fprintln(errOut, "<*CLIENT*>: Send private message error - Invalid message length (message must be between 1 and 4096 characters)")
		return "", "", false
	}
	return name, message, true
}
