package testutil

import (
	"testing"

	"phylotree/pkg/taxonomy"
)

// SharkRecords returns a small classification sample covering both
// chondrichthyan subclasses, several orders and repeated genera.
func SharkRecords() []taxonomy.Record {
	return []taxonomy.Record{
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Lamniformes", Family: "Lamnidae", Genus: "Carcharodon", Species: "carcharias"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Lamniformes", Family: "Lamnidae", Genus: "Isurus", Species: "oxyrinchus"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Lamniformes", Family: "Lamnidae", Genus: "Isurus", Species: "paucus"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Lamniformes", Family: "Alopiidae", Genus: "Alopias", Species: "vulpinus"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Carcharhiniformes", Family: "Carcharhinidae", Genus: "Carcharhinus", Species: "leucas"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Carcharhiniformes", Family: "Carcharhinidae", Genus: "Carcharhinus", Species: "limbatus"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Carcharhiniformes", Family: "Carcharhinidae", Genus: "Galeocerdo", Species: "cuvier"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Carcharhiniformes", Family: "Sphyrnidae", Genus: "Sphyrna", Species: "mokarran"},
		{Class: "Chondrichthyes", Subclass: "Elasmobranchii", Order: "Orectolobiformes", Family: "Rhincodontidae", Genus: "Rhincodon", Species: "typus"},
		{Class: "Chondrichthyes", Subclass: "Holocephali", Order: "Chimaeriformes", Family: "Chimaeridae", Genus: "Chimaera", Species: "monstrosa"},
	}
}

// SharkTable builds a table from SharkRecords.
func SharkTable(t testing.TB) *taxonomy.Table {
	t.Helper()
	table, err := taxonomy.NewTable(SharkRecords())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

// SharkCSV is SharkRecords rendered as a spreadsheet export with padded
// headers, an extra column and a blank row.
const SharkCSV = ` Class ,Subclass,Order,Family,Genus,Species,Notes
Chondrichthyes,Elasmobranchii,Lamniformes,Lamnidae,Carcharodon, carcharias ,great white
Chondrichthyes,Elasmobranchii,Lamniformes,Lamnidae,Isurus,oxyrinchus,
Chondrichthyes,Elasmobranchii,Lamniformes,Lamnidae,Isurus,paucus,
Chondrichthyes,Elasmobranchii,Lamniformes,Alopiidae,Alopias,vulpinus,
,,,,,,
Chondrichthyes,Elasmobranchii,Carcharhiniformes,Carcharhinidae,Carcharhinus,leucas,bull shark
Chondrichthyes,Elasmobranchii,Carcharhiniformes,Carcharhinidae,Carcharhinus,limbatus,
Chondrichthyes,Elasmobranchii,Carcharhiniformes,Carcharhinidae,Galeocerdo,cuvier,
Chondrichthyes,Elasmobranchii,Carcharhiniformes,Sphyrnidae,Sphyrna,mokarran,
Chondrichthyes,Elasmobranchii,Orectolobiformes,Rhincodontidae,Rhincodon,typus,
Chondrichthyes,Holocephali,Chimaeriformes,Chimaeridae,Chimaera,monstrosa,
`
