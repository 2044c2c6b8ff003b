package orphan

import "strings"

var outputPrefixes = []string{
	".text.", ".data.rel.ro.", ".data.", ".rodata.", ".bss.rel.ro.", ".bss.",
	".init_array.", ".fini_array.", ".tbss.", ".tdata.", ".sdata.", ".sbss.",
	".gcc_except_table.", ".ctors.", ".dtors.",
}

// OutputName maps an input section name to the name of the output
// section it is gathered in, e.g. .text.foo to .text.
func OutputName(name string) string {
	for _, prefix := range outputPrefixes {
		stem := prefix[:len(prefix)-1]
		if name == stem || strings.HasPrefix(name, prefix) {
			return stem
		}
	}
	return name
}
