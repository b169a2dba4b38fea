// Package nimage owns engine-side images from Go code.
//
// A Runtime binds a protocol.Engine to an admission.Controller. Every Handle
// created from it owns exactly one engine reference and keeps the
// controller's ledger in step with the bytes the engine holds for it:
//
//	rt := nimage.NewRuntime(engine, controller, nimage.WithLogger(logger))
//	h, err := rt.Create(protocol.RGBA)
//	if err != nil {
//		return err
//	}
//	defer h.Dispose()
//
//	if err := h.Load(ctx, "photo.jpg"); err != nil {
//		return err
//	}
//	img, err := h.MaterializeScaled(320, 0)
//
// # Accounting
//
// Load resynchronizes the ledger from fresh metadata after the engine call,
// whether or not it succeeded. ApplyEffect and Rotate adjust it by the signed
// change in allocated bytes. Dispose debits whatever the handle still holds.
//
// # Admission
//
// Load probes the file header for its dimensions and reserves
// width*height*bytesPerPixel before the engine decodes anything. Rotate with
// fast=true reserves a second buffer's worth. Denials return an
// out_of_memory error and leave the engine untouched.
//
// # Disposal
//
// Dispose is idempotent and atomic on the reference, so it is safe against a
// concurrent finalizer. A finalizer disposes handles that become unreachable
// while still live and logs a warning; it is a last resort, not a substitute
// for Dispose.
//
// Building with -tags leakcheck records the creation stack of every live
// handle; see DumpLeaks.
//
// Operations on one Handle must not run concurrently.
package nimage
