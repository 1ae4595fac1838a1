package render

import "strconv"

var units = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tens = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

// NumberToWords spells out a non-negative count in English, the same rule
// for every magnitude. Values of a million or more fall back to digits.
func NumberToWords(value int) string {
	switch {
	case value < 0:
		return strconv.Itoa(value)
	case value < 20:
		return units[value]
	case value < 100:
		t := tens[value/10]
		if r := value % 10; r != 0 {
			return t + "-" + units[r]
		}
		return t
	case value < 1000:
		h := units[value/100] + " hundred"
		if r := value % 100; r != 0 {
			return h + " " + NumberToWords(r)
		}
		return h
	case value < 1_000_000:
		k := NumberToWords(value/1000) + " thousand"
		if r := value % 1000; r != 0 {
			return k + " " + NumberToWords(r)
		}
		return k
	default:
		return strconv.Itoa(value)
	}
}

// WordsWithDigits renders the narrative convention "three (3)".
func WordsWithDigits(value int) string {
	return NumberToWords(value) + " (" + strconv.Itoa(value) + ")"
}
