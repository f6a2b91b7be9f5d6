package runner

// Partition distributes cases across n round-robin subsets. Subsets are
// disjoint and their union is exactly the input; trailing subsets may be
// empty when there are fewer cases than workers.
func Partition(cases []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	parts := make([][]string, n)
	for i, c := range cases {
		parts[i%n] = append(parts[i%n], c)
	}
	return parts
}
