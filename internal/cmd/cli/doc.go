// Package cli provides the `multipart` command-line tool.
//
// Usage
//
//	# page a file into 1 MiB page logs; prints the generated master key
//	multipart write backup.tar --page-size 1MiB
//
//	# page stdin under an explicit name and key
//	tar c dir | multipart write - --name dir.tar --master-key $KEY
//
//	# resume an interrupted write from its manifest checkpoint
//	multipart write backup.tar --master-key $KEY --resume
//
//	# reassemble
//	multipart read backup.tar --master-key $KEY --out restored.tar
//
//	# derive page addresses without touching storage
//	multipart keys --master-key $KEY --pages 4 --page-size 1MiB
//
//	multipart ls
//	multipart inspect backup.tar
//	multipart rm backup.tar
//
// Global flags --data-dir, --config, --fsync and --log-level override the
// config file and MULTIPART_* environment variables. The master key may
// also be given as MULTIPART_MASTER_KEY.
package cli
