package perm_test

import (
	"fmt"

	"github.com/matzehuels/guji/pkg/perm"
)

func ExampleApply() {
	texts := []string{"左列", "右列"}
	order := []int{1, 0}
	fmt.Println(perm.Apply(texts, order))
	// Output:
	// [右列 左列]
}

func ExampleIsPermutation() {
	fmt.Println(perm.IsPermutation([]int{1, 0, 2}, 3))
	fmt.Println(perm.IsPermutation([]int{1, 1, 2}, 3))
	// Output:
	// true
	// false
}
