// This file exports internal functions for use in tests. It is
// compiled only when running tests.

package setup

// TstZcashdConfigFile renders cfg the way generateConfigFile would for a
// Zcashd NodeKind, without touching disk.
func TstZcashdConfigFile(cfg NodeConfig) string {
	return string(zcashdConfigFile(cfg))
}

// TstZebraConfigFile renders cfg the way generateConfigFile would for a
// Zebra NodeKind, without touching disk.
func TstZebraConfigFile(cfg NodeConfig) (string, error) {
	b, err := zebraConfigFile(cfg)
	return string(b), err
}
