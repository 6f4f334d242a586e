package datamorph_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/datamorph-dev/datamorph"
)

func Example() {
	dir, err := os.MkdirTemp("", "datamorph")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "people.csv")
	if err := os.WriteFile(path, []byte("id,name,age\n1,Alice,30\n2,Bob,25\n"), 0o600); err != nil {
		fmt.Println(err)
		return
	}

	loader := datamorph.NewFileLoader()
	state, err := loader.Load(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer state.Close()

	fmt.Println(state.Format)
	for _, col := range state.Schema().Columns() {
		fmt.Printf("%s: %s\n", col.Name, col.Type)
	}

	// Output:
	// Csv
	// id: WholeNumber
	// name: Text
	// age: WholeNumber
}

func ExampleRecipeCodec_Serialize() {
	stack := datamorph.NewActionStack().
		Append(datamorph.NewRenameAction("score", "points")).
		Append(datamorph.NewCastAction("points", datamorph.WholeNumber))

	codec := datamorph.NewRecipeCodec()
	fmt.Print(codec.Serialize(&datamorph.Recipe{Name: "cleanup", Actions: stack}))

	// Output:
	// name: "cleanup"
	// actions:
	//   - type: rename
	//     old_name: "score"
	//     new_name: "points"
	//   - type: cast
	//     column_name: "points"
	//     target_type: WholeNumber
}

func ExampleResolveType() {
	fmt.Println(datamorph.ResolveType(datamorph.WholeNumber, datamorph.FloatingPoint))
	fmt.Println(datamorph.ResolveType(datamorph.Boolean, datamorph.WholeNumber))
	fmt.Println(datamorph.ResolveType(datamorph.Timestamp, datamorph.Text))

	// Output:
	// FloatingPoint
	// Text
	// Text
}
