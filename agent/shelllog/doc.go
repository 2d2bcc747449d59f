/*
包 shelllog 记录一次运行中执行过的命令与最终回答。

每条记录是一行 JSON：命令记录为 {"command": [...], "output": "..."}，
最终回答为 {"type": "final_response", "response": "..."}。

# Sink

  - console：写到 stdout（或指定 writer）
  - discard：丢弃
  - file：逐条追加到文件；写失败时回退到 stdout，不中断运行
  - http：POST 到指定端点；失败会返回错误并中断运行
  - redis：RPUSH 到列表，key 可带 {run_id}；失败会返回错误并中断运行

未显式指定时由 Resolve 决定：无人值守环境使用 file，否则 console。
*/
package shelllog
