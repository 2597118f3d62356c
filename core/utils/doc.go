// Package utils provides loose type conversion for values decoded from the engine
// bridge and checkpoint files, where numbers may arrive as float64, strings or ints
// depending on the producer.
package utils
