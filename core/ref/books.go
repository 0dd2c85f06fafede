package ref

import "strings"

// BookCount is the number of books in the canonical (Protestant) ordering.
const BookCount = 66

// books lists the SIL/USFM book codes in canonical order; index+1 is the
// canonical book number.
var books = [BookCount]struct {
	code string
	name string
}{
	{"GEN", "Genesis"}, {"EXO", "Exodus"}, {"LEV", "Leviticus"}, {"NUM", "Numbers"},
	{"DEU", "Deuteronomy"}, {"JOS", "Joshua"}, {"JDG", "Judges"}, {"RUT", "Ruth"},
	{"1SA", "1 Samuel"}, {"2SA", "2 Samuel"}, {"1KI", "1 Kings"}, {"2KI", "2 Kings"},
	{"1CH", "1 Chronicles"}, {"2CH", "2 Chronicles"}, {"EZR", "Ezra"}, {"NEH", "Nehemiah"},
	{"EST", "Esther"}, {"JOB", "Job"}, {"PSA", "Psalms"}, {"PRO", "Proverbs"},
	{"ECC", "Ecclesiastes"}, {"SNG", "Song of Solomon"}, {"ISA", "Isaiah"}, {"JER", "Jeremiah"},
	{"LAM", "Lamentations"}, {"EZK", "Ezekiel"}, {"DAN", "Daniel"}, {"HOS", "Hosea"},
	{"JOL", "Joel"}, {"AMO", "Amos"}, {"OBA", "Obadiah"}, {"JON", "Jonah"},
	{"MIC", "Micah"}, {"NAM", "Nahum"}, {"HAB", "Habakkuk"}, {"ZEP", "Zephaniah"},
	{"HAG", "Haggai"}, {"ZEC", "Zechariah"}, {"MAL", "Malachi"},
	{"MAT", "Matthew"}, {"MRK", "Mark"}, {"LUK", "Luke"}, {"JHN", "John"},
	{"ACT", "Acts"}, {"ROM", "Romans"}, {"1CO", "1 Corinthians"}, {"2CO", "2 Corinthians"},
	{"GAL", "Galatians"}, {"EPH", "Ephesians"}, {"PHP", "Philippians"}, {"COL", "Colossians"},
	{"1TH", "1 Thessalonians"}, {"2TH", "2 Thessalonians"}, {"1TI", "1 Timothy"}, {"2TI", "2 Timothy"},
	{"TIT", "Titus"}, {"PHM", "Philemon"}, {"HEB", "Hebrews"}, {"JAS", "James"},
	{"1PE", "1 Peter"}, {"2PE", "2 Peter"}, {"1JN", "1 John"}, {"2JN", "2 John"},
	{"3JN", "3 John"}, {"JUD", "Jude"}, {"REV", "Revelation"},
}

var (
	bookByCode = make(map[string]int, BookCount)
	bookByName = make(map[string]int, BookCount)
)

func init() {
	for i, b := range books {
		bookByCode[b.code] = i + 1
		bookByName[strings.ToLower(b.name)] = i + 1
	}
}

// BookNumber returns the canonical number for a book code ("MAT", "mat") or
// English book name ("Matthew"). The second result is false when the text
// names no known book.
func BookNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, ok := bookByCode[strings.ToUpper(s)]; ok {
		return n, true
	}
	n, ok := bookByName[strings.ToLower(s)]
	return n, ok
}

// BookCode returns the 3-letter code for a canonical book number, or "" when
// the number is out of range.
func BookCode(n int) string {
	if n < 1 || n > BookCount {
		return ""
	}
	return books[n-1].code
}

// BookName returns the English name for a canonical book number.
func BookName(n int) string {
	if n < 1 || n > BookCount {
		return ""
	}
	return books[n-1].name
}
