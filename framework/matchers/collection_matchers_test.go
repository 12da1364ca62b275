package matchers

import "testing"

func TestItemsInAnyOrder(t *testing.T) {
	slice := []string{"y", "z", "x"}

	assertPasses(t, slice, ItemsInAnyOrder(Equal("y"), Equal("z"), Equal("x")))
	assertPasses(t, slice, ItemsInAnyOrder(Equal("x"), Equal("y"), Equal("z")))
	assertPasses(t, []string{}, ItemsInAnyOrder())

	assertFails(t, slice, ItemsInAnyOrder(Equal("x"), Equal("y")),
		"expected: 2 item(s), but there were 3\nactual value was: [y z x]")

	assertFails(t, slice, ItemsInAnyOrder(Equal("x"), Equal("a"), Equal("z")),
		"expected: items in any order: (equal to x), (equal to a), (equal to z)"+
			"\nactual value was: [y z x]")

	// each matcher needs an item of its own
	assertFails(t, slice, ItemsInAnyOrder(Equal("x"), Equal("y"), Equal("x")),
		"expected: items in any order: (equal to x), (equal to y), (equal to x)"+
			"\nactual value was: [y z x]")

	assertFails(t, "xyz", ItemsInAnyOrder(Equal("x")), "expected: a slice\nactual value was: xyz")
}

func TestHasKey(t *testing.T) {
	m := map[string]string{"name": "required"}

	assertPasses(t, m, HasKey("name"))
	assertFails(t, m, HasKey("email"), "expected: has key email\nactual value was: map[name:required]")
	assertFails(t, m, HasKey(3), "expected: has key 3\nactual value was: map[name:required]")
	assertFails(t, "name", HasKey("name"), "expected: a map\nactual value was: name")
}

func TestLength(t *testing.T) {
	assertPasses(t, []int{1, 2}, Length().Should(Equal(2)))
	assertPasses(t, map[string]int{}, Length().Should(Equal(0)))
	assertPasses(t, 5, Length().Should(Equal(-1)))
	assertFails(t, "abc", Length().Should(Equal(2)), "expected: length equal to 2\nactual value was: abc")
}
