package exp

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ArchiveExt is the extension appended to archived experience files.
const ArchiveExt = ".zst"

// Archive compresses the experience file at path into dst (path + ".zst"
// when dst is empty). The file is validated first so arbitrary data is not
// archived by mistake.
func Archive(path, dst string) error {
	if dst == "" {
		dst = path + ArchiveExt
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if _, err := EntryCount(fi.Size()); err != nil {
		return err
	}
	if err := readSignature(in); err != nil {
		return err
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		out.Close()
		return err
	}

	_, err = io.Copy(enc, in)
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}

// Extract decompresses an archived experience file back to dst (path with
// the ".zst" extension removed when dst is empty), verifying the signature
// of the decompressed stream.
func Extract(path, dst string) error {
	if dst == "" {
		dst = strings.TrimSuffix(path, ArchiveExt)
		if dst == path {
			return fmt.Errorf("cannot derive output name from %s", path)
		}
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	if err := readSignature(dec); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, Signature)
	if err == nil {
		_, err = io.Copy(out, dec)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("extract %s: %w", path, err)
	}
	return nil
}

func readSignature(r io.Reader) error {
	sig := make([]byte, SignatureSize)
	if _, err := io.ReadFull(r, sig); err != nil {
		return fmt.Errorf("%w: reading signature: %v", ErrCorrupt, err)
	}
	if string(sig) != Signature {
		return ErrSignatureMismatch
	}
	return nil
}
