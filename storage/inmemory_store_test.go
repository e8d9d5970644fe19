package storage_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/rcontf/beta-serverless-api/storage"
)

var _ = Describe("storage / InmemoryStore", func() {
	Describe("Close()", func() {
		It("does not panic when closed twice", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(func() { store.Close() }).NotTo(Panic())
			Expect(func() { store.Close() }).NotTo(Panic())
		})
	})

	It("an empty store backs up as {}", func() {
		store := storage.NewInmemoryStore()
		defer store.Close()

		value, err := store.Backup()
		Expect(err).To(Succeed())
		Expect(string(value)).To(Equal(`{}`))
	})

	Describe("RecordCommand() / Stats()", func() {
		It("counts commands per server, keying host:port as one element", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			ctx := context.Background()
			Expect(store.RecordCommand(ctx, "10.0.0.1:27015", false)).To(Succeed())
			Expect(store.RecordCommand(ctx, "10.0.0.1:27015", false)).To(Succeed())

			stats, err := store.Stats(ctx, "10.0.0.1:27015")
			Expect(err).To(Succeed())
			Expect(string(stats)).To(Equal(`{"commands":2}`))
		})

		It("counts failures separately", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			ctx := context.Background()
			Expect(store.RecordCommand(ctx, "10.0.0.1:27015", false)).To(Succeed())
			Expect(store.RecordCommand(ctx, "10.0.0.1:27015", true)).To(Succeed())

			stats, err := store.Stats(ctx, "10.0.0.1:27015")
			Expect(err).To(Succeed())
			Expect(string(stats)).To(Equal(`{"commands":2,"errors":1}`))
		})

		It("returns nothing for a server never recorded", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			stats, err := store.Stats(context.Background(), "10.0.0.9:27015")
			Expect(err).To(Succeed())
			Expect(stats).To(BeEmpty())
		})

		It("keeps servers independent", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			ctx := context.Background()
			Expect(store.RecordCommand(ctx, "10.0.0.1:27015", false)).To(Succeed())
			Expect(store.RecordCommand(ctx, "10.0.0.2:27016", true)).To(Succeed())

			stats, err := store.Stats(ctx, "10.0.0.1:27015")
			Expect(err).To(Succeed())
			Expect(string(stats)).To(Equal(`{"commands":1}`))
		})

		It("sends on the update channel when counters change", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			updateChan := store.ListenToUpdates()
			Expect(store.RecordCommand(context.Background(), "10.0.0.1:27015", false)).To(Succeed())

			update, ok := <-updateChan
			Expect(ok).To(BeTrue())
			Expect(update.Server).To(Equal("10.0.0.1:27015"))
			Expect(string(update.Value)).To(Equal(`{"commands":1}`))
		})
	})

	Describe("Backup() / Restore()", func() {
		It("round-trips the whole document", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			ctx := context.Background()
			Expect(store.RecordCommand(ctx, "10.0.0.1:27015", true)).To(Succeed())

			doc, err := store.Backup()
			Expect(err).To(Succeed())

			restored := storage.NewInmemoryStore()
			defer restored.Close()
			Expect(restored.Restore(doc)).To(Succeed())

			doc2, err := restored.Backup()
			Expect(err).To(Succeed())
			Expect(string(doc2)).To(Equal(string(doc)))
		})
	})
})
