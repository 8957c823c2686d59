package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable
// guidance. It examines the error chain and tailors the help text to
// the error code.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	rpcErr, ok := AsRPCError(err)
	if !ok {
		return err.Error()
	}

	var b strings.Builder

	if rpcErr.Detail != "" {
		fmt.Fprintf(&b, "%s: %s\n", rpcErr.Message, rpcErr.Detail)
	} else {
		fmt.Fprintf(&b, "%s\n", rpcErr.Message)
	}

	switch rpcErr.Code {
	case CodeRepoNotFound:
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Run the command from inside a git repository\n")
		b.WriteString("  • Or pass --repo with the repository path\n")

	case CodeInvalidRef:
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Run 'git tag --list' to see available tags\n")
		b.WriteString("  • Run 'git branch -a' to see available branches\n")
		b.WriteString("  • A full or abbreviated commit SHA also works\n")

	case CodeEmptyRange:
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Check that the refs are distinct and ordered oldest-first\n")
		b.WriteString("  • Run 'git log FROM..TO --oneline' to inspect the range\n")

	case CodeLimitExceeded:
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Narrow the range to fewer commits\n")
		b.WriteString("  • Or raise the limit with --max-commits\n")

	case CodeGitTimeout:
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Try a smaller commit range\n")
		b.WriteString("  • Raise git.timeout_seconds in the config file\n")

	case CodeInvalidJSONFile:
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Validate the file with a JSON linter\n")
		b.WriteString("  • Check that list fields are arrays and counts are numbers\n")
		b.WriteString("  • Delete the file to fall back to defaults\n")
	}

	if rpcErr.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", rpcErr.Cause)
	}

	return b.String()
}
