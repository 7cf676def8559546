package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name CombinedWriter --dir ../usecase --output usecase --outpkg usecasemock --filename combined_writer_mock.go
