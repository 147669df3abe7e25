package pyeval

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	alt       bool
	zero      bool
	width     int
	grouping  byte
	precision int
	kind      byte
}

func parseFormatSpec(spec string) (formatSpec, error) {
	fs := formatSpec{fill: ' ', precision: -1}
	s := spec
	if r, size := utf8.DecodeRuneInString(s); size > 0 && len(s) > size && strings.IndexByte("<>=^", s[size]) >= 0 {
		fs.fill, fs.align = r, s[size]
		s = s[size+1:]
	} else if len(s) > 0 && strings.IndexByte("<>=^", s[0]) >= 0 {
		fs.align = s[0]
		s = s[1:]
	}
	if len(s) > 0 && strings.IndexByte("+- ", s[0]) >= 0 {
		fs.sign = s[0]
		s = s[1:]
	}
	if strings.HasPrefix(s, "#") {
		fs.alt = true
		s = s[1:]
	}
	if strings.HasPrefix(s, "0") {
		fs.zero = true
		s = s[1:]
	}
	n := 0
	for n < len(s) && isDigitByte(s[n]) {
		n++
	}
	if n > 0 {
		w, err := strconv.Atoi(s[:n])
		if err != nil || w > MaxSequenceLen {
			return fs, checkLen(-1)
		}
		fs.width = w
		s = s[n:]
	}
	if len(s) > 0 && (s[0] == ',' || s[0] == '_') {
		fs.grouping = s[0]
		s = s[1:]
	}
	if strings.HasPrefix(s, ".") {
		n = 1
		for n < len(s) && isDigitByte(s[n]) {
			n++
		}
		if n == 1 {
			return fs, newException("ValueError", "Format specifier missing precision")
		}
		p, err := strconv.Atoi(s[1:n])
		if err != nil || p > MaxSequenceLen {
			return fs, checkLen(-1)
		}
		fs.precision = p
		s = s[n:]
	}
	if len(s) > 1 {
		return fs, newException("ValueError", "Invalid format specifier '%s'", spec)
	}
	if len(s) == 1 {
		fs.kind = s[0]
	}
	return fs, nil
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// formatValue implements format(v, spec).
func formatValue(v Value, spec string) (string, error) {
	if spec == "" || isOpaque(v) {
		return ToStr(v), nil
	}
	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}
	var body string
	numeric := false
	switch x := v.(type) {
	case Str:
		if fs.kind != 0 && fs.kind != 's' {
			return "", newException("ValueError", "Unknown format code '%c' for object of type 'str'", fs.kind)
		}
		body = string(x)
		if fs.precision >= 0 && utf8.RuneCountInString(body) > fs.precision {
			body = string([]rune(body)[:fs.precision])
		}
	case Int, Bool, Float:
		numeric = true
		body, err = formatNumber(v, fs)
		if err != nil {
			return "", err
		}
	default:
		body = ToStr(v)
	}
	return pad(body, fs, numeric), nil
}

func formatNumber(v Value, fs formatSpec) (string, error) {
	f, i, isInt, _ := number(v)
	kind := fs.kind
	if kind == 0 {
		if isInt {
			kind = 'd'
		} else if fs.precision >= 0 {
			kind = 'g'
		}
	}
	var digits string
	neg := false
	switch kind {
	case 'd', 'n':
		if !isInt {
			return "", newException("ValueError", "Unknown format code 'd' for object of type 'float'")
		}
		neg = i < 0
		digits = strconv.FormatUint(absInt(i), 10)
		digits = group(digits, fs.grouping)
	case 'x', 'X', 'o', 'b':
		if !isInt {
			return "", newException("ValueError", "Unknown format code '%c' for object of type 'float'", kind)
		}
		neg = i < 0
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'b': 2}[kind]
		digits = strconv.FormatUint(absInt(i), base)
		if kind == 'X' {
			digits = strings.ToUpper(digits)
		}
		if fs.alt {
			digits = "0" + string(kind) + digits
		}
	case 'c':
		return string(rune(i)), nil
	case 'f', 'F', 'e', 'E', 'g', 'G', '%':
		prec := fs.precision
		if prec < 0 {
			prec = 6
		}
		neg = f < 0 || (f == 0 && math.Signbit(f))
		af := math.Abs(f)
		switch kind {
		case '%':
			digits = strconv.FormatFloat(af*100, 'f', prec, 64) + "%"
		case 'g', 'G':
			if prec == 0 {
				prec = 1
			}
			digits = strconv.FormatFloat(af, byte(kind), prec, 64)
		default:
			digits = strconv.FormatFloat(af, byte(kind), prec, 64)
		}
		if kind == 'f' || kind == 'F' {
			whole, frac, hasFrac := strings.Cut(digits, ".")
			digits = group(whole, fs.grouping)
			if hasFrac {
				digits += "." + frac
			}
		}
	default:
		s := ToStr(v)
		neg = strings.HasPrefix(s, "-")
		digits = strings.TrimPrefix(s, "-")
	}
	switch {
	case neg:
		return "-" + digits, nil
	case fs.sign == '+':
		return "+" + digits, nil
	case fs.sign == ' ':
		return " " + digits, nil
	}
	return digits, nil
}

func absInt(i int64) uint64 {
	if i < 0 {
		return uint64(-i)
	}
	return uint64(i)
}

func group(digits string, sep byte) string {
	if sep == 0 || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func pad(body string, fs formatSpec, numeric bool) string {
	n := utf8.RuneCountInString(body)
	if n >= fs.width {
		return body
	}
	align := fs.align
	fill := string(fs.fill)
	if fs.zero && align == 0 {
		align, fill = '=', "0"
	}
	if align == 0 {
		align = '<'
		if numeric {
			align = '>'
		}
	}
	gap := fs.width - n
	switch align {
	case '>':
		return strings.Repeat(fill, gap) + body
	case '^':
		left := gap / 2
		return strings.Repeat(fill, left) + body + strings.Repeat(fill, gap-left)
	case '=':
		sign := ""
		if body != "" && strings.IndexByte("+- ", body[0]) >= 0 {
			sign, body = body[:1], body[1:]
		}
		return sign + strings.Repeat(fill, gap) + body
	}
	return body + strings.Repeat(fill, gap)
}

// percentFormat implements the % operator on strings.
func percentFormat(format string, arg Value) (string, error) {
	var (
		args    []Value
		mapping *Dict
	)
	switch a := arg.(type) {
	case Tuple:
		args = a
	case *Dict:
		mapping = a
		args = []Value{a}
	default:
		args = []Value{arg}
	}
	next := 0
	take := func() (Value, error) {
		if next >= len(args) {
			return nil, newException("TypeError", "not enough arguments for format string")
		}
		next++
		return args[next-1], nil
	}
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", newException("ValueError", "incomplete format")
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}
		var val Value
		if format[i] == '(' {
			end := strings.IndexByte(format[i:], ')')
			if end < 0 || mapping == nil {
				return "", newException("TypeError", "format requires a mapping")
			}
			key := format[i+1 : i+end]
			v, ok := mapping.GetStr(key)
			if !ok {
				return "", newException("KeyError", "%s", quote(key))
			}
			val = v
			i += end + 1
		}
		fs := formatSpec{fill: ' ', precision: -1}
		for ; i < len(format) && strings.IndexByte("-+ 0#", format[i]) >= 0; i++ {
			switch format[i] {
			case '-':
				fs.align = '<'
			case '+', ' ':
				fs.sign = format[i]
			case '0':
				fs.zero = true
			case '#':
				fs.alt = true
			}
		}
		if i < len(format) && format[i] == '*' {
			w, err := take()
			if err != nil {
				return "", err
			}
			n, _ := toInt(w)
			if n > MaxSequenceLen {
				return "", checkLen(-1)
			}
			fs.width = int(n)
			i++
		}
		for ; i < len(format) && isDigitByte(format[i]); i++ {
			if fs.width = fs.width*10 + int(format[i]-'0'); fs.width > MaxSequenceLen {
				return "", checkLen(-1)
			}
		}
		if i < len(format) && format[i] == '.' {
			fs.precision = 0
			for i++; i < len(format) && isDigitByte(format[i]); i++ {
				if fs.precision = fs.precision*10 + int(format[i]-'0'); fs.precision > MaxSequenceLen {
					return "", checkLen(-1)
				}
			}
		}
		if i >= len(format) {
			return "", newException("ValueError", "incomplete format")
		}
		if val == nil {
			v, err := take()
			if err != nil {
				return "", err
			}
			val = v
		}
		if fs.align == '<' {
			fs.zero = false
		} else if !fs.zero {
			fs.align = '>'
		}
		conv := format[i]
		var body string
		numeric := false
		switch conv {
		case 's':
			body = ToStr(val)
			if fs.precision >= 0 && len(body) > fs.precision {
				body = body[:fs.precision]
			}
		case 'r', 'a':
			body = Repr(val)
		case 'd', 'i', 'u', 'x', 'X', 'o', 'c', 'f', 'F', 'e', 'E', 'g', 'G':
			numeric = true
			if isOpaque(val) {
				body = ToStr(val)
				break
			}
			if f, ok := val.(Float); ok && strings.IndexByte("diuxXoc", conv) >= 0 {
				iv, err := floatToInt(float64(f))
				if err != nil {
					return "", err
				}
				val = iv
			}
			if _, _, _, ok := number(val); !ok {
				return "", newException("TypeError", "%%%c format: a real number is required, not %s", conv, val.Type())
			}
			fs.kind = conv
			if conv == 'i' || conv == 'u' {
				fs.kind = 'd'
			}
			if strings.IndexByte("fFeEgG", conv) >= 0 {
				if _, isFloat := val.(Float); !isFloat {
					f, _, _, _ := number(val)
					val = Float(f)
				}
			}
			var err error
			if body, err = formatNumber(val, fs); err != nil {
				return "", err
			}
		default:
			return "", newException("ValueError", "unsupported format character '%c'", conv)
		}
		b.WriteString(pad(body, fs, numeric))
	}
	if mapping == nil && next < len(args) {
		return "", newException("TypeError", "not all arguments converted during string formatting")
	}
	return b.String(), nil
}

// strFormat implements str.format.
func (in *Interp) strFormat(tmpl string, args []Value, kwargs []Kwarg) (string, error) {
	var b strings.Builder
	auto := 0
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := fieldEnd(tmpl, i+1)
			if end < 0 {
				return "", newException("ValueError", "Single '{' encountered in format string")
			}
			out, err := in.formatReplacement(tmpl[i+1:end], args, kwargs, &auto)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i = end
		case c == '}':
			return "", newException("ValueError", "Single '}' encountered in format string")
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func (in *Interp) formatReplacement(field string, args []Value, kwargs []Kwarg, auto *int) (string, error) {
	ref, conv, spec := splitField(field)
	name := ref
	rest := ""
	if k := strings.IndexAny(ref, ".["); k >= 0 {
		name, rest = ref[:k], ref[k:]
	}
	var v Value
	switch {
	case name == "":
		if *auto >= len(args) {
			return "", newException("IndexError", "Replacement index %d out of range for positional args tuple", *auto)
		}
		v = args[*auto]
		*auto++
	case isAllDigits(name):
		n, _ := strconv.Atoi(name)
		if n >= len(args) {
			return "", newException("IndexError", "Replacement index %d out of range for positional args tuple", n)
		}
		v = args[n]
	default:
		found := false
		for _, kw := range kwargs {
			if kw.Name == name {
				v, found = kw.Value, true
			}
		}
		if !found {
			return "", newException("KeyError", "%s", quote(name))
		}
	}
	for rest != "" {
		var err error
		if rest[0] == '.' {
			k := strings.IndexAny(rest[1:], ".[")
			attr := rest[1:]
			if k >= 0 {
				attr, rest = rest[1:k+1], rest[k+1:]
			} else {
				rest = ""
			}
			v, err = in.getAttr(v, attr)
		} else {
			k := strings.IndexByte(rest, ']')
			if k < 0 {
				return "", newException("ValueError", "Missing ']' in format string")
			}
			key := rest[1:k]
			rest = rest[k+1:]
			var idx Value = Str(key)
			if isAllDigits(key) {
				n, _ := strconv.Atoi(key)
				idx = Int(n)
			}
			v, err = in.getItem(v, idx)
		}
		if err != nil {
			return "", err
		}
	}
	if strings.Contains(spec, "{") {
		var err error
		if spec, err = in.strFormat(spec, args, kwargs); err != nil {
			return "", err
		}
	}
	switch conv {
	case "r", "a":
		v = Str(Repr(v))
	case "s":
		v = Str(ToStr(v))
	}
	return formatValue(v, spec)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigitByte(s[i]) {
			return false
		}
	}
	return true
}
