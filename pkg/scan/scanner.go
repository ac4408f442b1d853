package scan

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Kind identifies a token. Punctuation tokens use their own rune value.
type Kind int

const (
	EOF Kind = -(iota + 1)
	ID
	NUM
)

// String returns a printable token kind
func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case ID:
		return "identifier"
	case NUM:
		return "number"
	}
	return fmt.Sprintf("'%c'", rune(k))
}

// Error describes a syntax error at a position of the input
type Error struct {
	File  string
	Line  int
	Token string
	Msg   string
}

func (e *Error) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s (at %q)", e.File, e.Line, e.Msg, e.Token)
}

type token struct {
	kind  Kind
	value string
	line  int
}

// Scanner splits a textual description into tokens. It always holds the
// current token and can look one token ahead.
type Scanner struct {
	name   string
	src    []rune
	pos    int
	line   int
	cur    token
	peeked *token
}

// New creates a scanner over the contents of r and reads the first token
func New(r io.Reader, name string) (*Scanner, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	s := &Scanner{name: name, src: []rune(string(data)), line: 1}
	if err := s.Next(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewString creates a scanner over a string
func NewString(text, name string) (*Scanner, error) {
	return New(strings.NewReader(text), name)
}

// Name returns the input name used in error messages
func (s *Scanner) Name() string { return s.name }

// Token returns the kind of the current token
func (s *Scanner) Token() Kind { return s.cur.kind }

// Value returns the text of the current token
func (s *Scanner) Value() string { return s.cur.value }

// Line returns the line of the current token
func (s *Scanner) Line() int { return s.cur.line }

// AtEOF reports whether all input has been consumed
func (s *Scanner) AtEOF() bool { return s.cur.kind == EOF }

// IsWord reports whether the current token is the identifier w
func (s *Scanner) IsWord(w string) bool {
	return s.cur.kind == ID && s.cur.value == w
}

// IsName reports whether the current token can serve as a name
func (s *Scanner) IsName() bool {
	return s.cur.kind == ID || s.cur.kind == NUM
}

// Next consumes the current token
func (s *Scanner) Next() error {
	if s.peeked != nil {
		s.cur = *s.peeked
		s.peeked = nil
		return nil
	}
	t, err := s.lex()
	if err != nil {
		return err
	}
	s.cur = t
	return nil
}

// Peek returns the token following the current one without consuming
// anything.
func (s *Scanner) Peek() (Kind, string, error) {
	if s.peeked == nil {
		t, err := s.lex()
		if err != nil {
			return EOF, "", err
		}
		s.peeked = &t
	}
	return s.peeked.kind, s.peeked.value, nil
}

// Expect consumes the current token if it is the punctuation ch
func (s *Scanner) Expect(ch rune) error {
	if s.cur.kind != Kind(ch) {
		return s.Errorf("'%c' expected", ch)
	}
	return s.Next()
}

// ExpectWord consumes the current token if it is the identifier w
func (s *Scanner) ExpectWord(w string) error {
	if !s.IsWord(w) {
		return s.Errorf("'%s' expected", w)
	}
	return s.Next()
}

// Number returns the numeric value of the current token
func (s *Scanner) Number() (float64, error) {
	if s.cur.kind != NUM {
		return 0, s.Errorf("number expected")
	}
	f, err := strconv.ParseFloat(s.cur.value, 64)
	if err != nil {
		return 0, s.Errorf("invalid number")
	}
	return f, nil
}

// Errorf builds a syntax error located at the current token
func (s *Scanner) Errorf(format string, args ...interface{}) *Error {
	tok := s.cur.value
	if s.cur.kind == EOF {
		tok = ""
	}
	return &Error{File: s.name, Line: s.cur.line, Token: tok, Msg: fmt.Sprintf(format, args...)}
}

// Recover skips tokens up to and including the next stop character
func (s *Scanner) Recover(stop rune) {
	for s.cur.kind != EOF {
		k := s.cur.kind
		if err := s.Next(); err != nil {
			s.cur = token{kind: EOF, line: s.line}
			return
		}
		if k == Kind(stop) {
			return
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '+' || r == '-'
}

func (s *Scanner) skip() error {
	for s.pos < len(s.src) {
		r := s.src[s.pos]
		switch {
		case r == '\n':
			s.line++
			s.pos++
		case unicode.IsSpace(r):
			s.pos++
		case r == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			start := s.line
			s.pos += 2
			for {
				if s.pos+1 >= len(s.src) {
					return &Error{File: s.name, Line: start, Msg: "unterminated comment"}
				}
				if s.src[s.pos] == '*' && s.src[s.pos+1] == '/' {
					s.pos += 2
					break
				}
				if s.src[s.pos] == '\n' {
					s.line++
				}
				s.pos++
			}
		case r == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *Scanner) lex() (token, error) {
	if err := s.skip(); err != nil {
		return token{}, err
	}
	if s.pos >= len(s.src) {
		return token{kind: EOF, line: s.line}, nil
	}
	line := s.line
	r := s.src[s.pos]
	if r == '"' || r == '\'' {
		return s.quoted(r)
	}
	if !isWordRune(r) {
		s.pos++
		return token{kind: Kind(r), value: string(r), line: line}, nil
	}
	start := s.pos
	for s.pos < len(s.src) && isWordRune(s.src[s.pos]) {
		s.pos++
	}
	word := string(s.src[start:s.pos])
	if looksNumeric(word) {
		return token{kind: NUM, value: word, line: line}, nil
	}
	return token{kind: ID, value: word, line: line}, nil
}

func looksNumeric(w string) bool {
	c := w[0]
	if !(c >= '0' && c <= '9') && c != '.' && c != '+' && c != '-' {
		return false
	}
	_, err := strconv.ParseFloat(w, 64)
	return err == nil
}

func (s *Scanner) quoted(q rune) (token, error) {
	line := s.line
	s.pos++
	var b strings.Builder
	for {
		if s.pos >= len(s.src) || s.src[s.pos] == '\n' {
			return token{}, &Error{File: s.name, Line: line, Msg: "unterminated string"}
		}
		r := s.src[s.pos]
		s.pos++
		if r == q {
			break
		}
		if r == '\\' && s.pos < len(s.src) {
			r = s.src[s.pos]
			s.pos++
			switch r {
			case 'n':
				r = '\n'
			case 't':
				r = '\t'
			case 'r':
				r = '\r'
			}
		}
		b.WriteRune(r)
	}
	return token{kind: ID, value: b.String(), line: line}, nil
}

// Format returns name in a form that scans back as a single token
func Format(name string) string {
	plain := name != ""
	for _, r := range name {
		if !isWordRune(r) {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range name {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
