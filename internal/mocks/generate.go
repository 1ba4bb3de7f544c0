package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Cache --dir ../domain/standings --output domain/standings --outpkg standingsmock --filename cache_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name EventDedupRepository --dir ../domain/match --output domain/match --outpkg matchmock --filename event_dedup_repository_mock.go
