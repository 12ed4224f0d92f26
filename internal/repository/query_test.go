package repository

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":    1,
		"1":   1,
		"3":   3,
		" 2 ": 2,
		"0":   1,
		"-4":  1,
		"abc": 1,
		"2.5": 1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), "page %q", raw)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList("   "))
	assert.Equal(t, []string{"Electronics"}, SplitList("Electronics"))
	assert.Equal(t, []string{"Electronics", "Books"}, SplitList("Electronics, Books"))
	assert.Equal(t, []string{"a", "b"}, SplitList(",a,, b ,"))
}

func TestSkip(t *testing.T) {
	assert.Equal(t, int64(0), ListQuery{Page: 1}.Skip())
	assert.Equal(t, int64(8), ListQuery{Page: 2}.Skip())
	assert.Equal(t, int64(16), ListQuery{Page: 3}.Skip())
	assert.Equal(t, int64(0), ListQuery{}.Skip())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(1))
	assert.Equal(t, 1, TotalPages(8))
	assert.Equal(t, 2, TotalPages(9))
	assert.Equal(t, 3, TotalPages(20))
}

func TestFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, NewListQuery("", "", "").Filter())
}

func TestFilter_CategoryMembership(t *testing.T) {
	f := NewListQuery("", "", "Electronics,Books").Filter()

	require.Contains(t, f, "category")
	assert.Equal(t, bson.M{"$in": []string{"Electronics", "Books"}}, f["category"])
	assert.NotContains(t, f, "title")
}

func TestFilter_TitleSearchIsLiteralAndCaseInsensitive(t *testing.T) {
	f := NewListQuery("", "c++ (pro)", "").Filter()

	re := f["title"].(bson.M)["$regex"].(primitive.Regex)
	assert.Equal(t, "i", re.Options)

	compiled := regexp.MustCompile("(?i)" + re.Pattern)
	assert.True(t, compiled.MatchString("Learn C++ (Pro) Edition"))
	assert.False(t, compiled.MatchString("Learn C Pro"))
}

func TestFilter_TitleSearchMatchesSubstring(t *testing.T) {
	f := NewListQuery("", "phone", "").Filter()

	re := f["title"].(bson.M)["$regex"].(primitive.Regex)
	compiled := regexp.MustCompile("(?" + re.Options + ")" + re.Pattern)
	assert.True(t, compiled.MatchString("Smartphone X"))
	assert.False(t, compiled.MatchString("Laptop"))
}

func TestFilter_CombinesWithAnd(t *testing.T) {
	f := NewListQuery("2", "phone", "Electronics").Filter()

	assert.Len(t, f, 2)
	assert.Contains(t, f, "category")
	assert.Contains(t, f, "title")
}

func TestFilter_TermsMatchTitleOrCategory(t *testing.T) {
	q := NewListQuery("", "", "Books")
	q.Terms = []string{"go", "rust"}
	f := q.Filter()

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 4)

	fields := make([]string, 0, len(or))
	for _, clause := range or {
		for field := range clause.(bson.M) {
			fields = append(fields, field)
		}
	}
	assert.ElementsMatch(t, []string{"title", "category", "title", "category"}, fields)
	assert.Contains(t, f, "category")
}
