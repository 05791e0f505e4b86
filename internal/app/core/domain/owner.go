package domain

// Owner 餘額擁有者的識別 (例如錢包地址)
type Owner string

// String implements fmt.Stringer.
func (o Owner) String() string {
	return string(o)
}
