package enum

// CartChange 表示購物車的變動種類
type CartChange string

const (
	CartChangeAdded   CartChange = "added"
	CartChangeRemoved CartChange = "removed"
	CartChangeUpdated CartChange = "updated"
	CartChangeCleared CartChange = "cleared"
)
