package term

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/linlog/pkg/linlog/symbol"
)

// Names resolves IDs back to strings. *symbol.Table satisfies it.
type Names interface {
	Resolve(symbol.ID) string
	ResolveVar(symbol.VarID) string
}

// Format renders t in the textual syntax accepted by the parse package.
func Format(t Term, names Names) string {
	var b strings.Builder
	write(&b, t, names)
	return b.String()
}

// FormatList renders terms separated by ", "
func FormatList(ts []Term, names Names) string {
	var b strings.Builder
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		write(&b, t, names)
	}
	return b.String()
}

func write(b *strings.Builder, t Term, names Names) {
	switch x := t.(type) {
	case Atom:
		writeAtom(b, names.Resolve(x.Sym))
	case Var:
		b.WriteString(names.ResolveVar(x.ID))
	case Int:
		b.WriteString(strconv.FormatInt(x.Value, 10))
	case Compound:
		writeAtom(b, names.Resolve(x.Functor))
		b.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, a, names)
		}
		b.WriteByte(')')
	case Persistent:
		b.WriteByte('!')
		write(b, x.Inner, names)
	}
}

func writeAtom(b *strings.Builder, name string) {
	if isBareAtom(name) {
		b.WriteString(name)
		return
	}
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(name, `\`, `\\`), `'`, `\'`))
	b.WriteByte('\'')
}

// isBareAtom reports whether name can be written without quotes: a lower-case
// letter followed by letters, digits or underscores.
func isBareAtom(name string) bool {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || !unicode.IsLower(r) {
		return false
	}
	for _, r := range name[size:] {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
